package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReviewPipeline/internal/domain"
)

func testSettings() domain.ValidationSettings {
	return domain.ValidationSettings{
		Version:            1,
		MinLength:          10,
		MaxLength:          200,
		ToneScoreThreshold: 0.4,
		PromptTemplate:     "unused",
	}
}

func TestReviewAccepted(t *testing.T) {
	t.Parallel()

	text := "배송이 빨라서 원하는 날에 도착했고, 품질도 만족스러워 인테리어에도 잘 어울려요. 추천합니다."
	res, err := Review(text, testSettings())
	require.NoError(t, err)

	assert.Equal(t, len([]rune(text)), res.CharCount)
	assert.Greater(t, res.ToneScore, 0.4)
}

func TestReviewLengthCountsRunesNotBytes(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.MinLength = 90
	settings.MaxLength = 170

	text := strings.Repeat("가", 85)
	_, err := Review(text, settings)
	require.Error(t, err)
	assert.Equal(t, "LENGTH_OUT_OF_RANGE:85", err.Error())
	assert.Equal(t, domain.ClassValidation, domain.ClassOf(err))
}

func TestReviewBannedPhrase(t *testing.T) {
	t.Parallel()

	for _, text := range []string{
		"마음에 들지 않으면 100% 환불 해드립니다. 품질은 정말 만족스러워요.",
		"지금 구매하면 무료  증정 이벤트까지 참여할 수 있어 만족스러워요.",
		"This product is completely FREE and absolutely wonderful to use.",
		"최저가 보장 상품이라 고민 없이 바로 구매했어요. 깔끔하고 좋아요.",
	} {
		_, err := Review(text, testSettings())
		require.Error(t, err, text)
		assert.Equal(t, domain.CodeBannedPhrase, domain.CodeOf(err))
	}
}

func TestReviewToneTooLow(t *testing.T) {
	t.Parallel()

	text := "품질이 별로였고 사용하기 불편했으며 전반적으로 실망스러운 제품이었습니다."
	_, err := Review(text, testSettings())
	require.Error(t, err)
	assert.Equal(t, domain.CodeToneScoreTooLow, domain.CodeOf(err))
}

func TestReviewCheckOrder(t *testing.T) {
	t.Parallel()

	// Fails every check at once; length is reported because it runs first.
	_, err := Review("공짜 최악", testSettings())
	require.Error(t, err)
	assert.Equal(t, domain.CodeLengthOutOfRange, domain.CodeOf(err))
}

func TestToneScore(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want float64
	}{
		{"no sentiment tokens", "그냥 평범한 제품입니다", 0.5},
		{"empty text", "", 0.5},
		{"positive heavy", "만족 좋아요 추천 깔끔", 0.83}, // (4+1)/(4+2)
		{"negative heavy", "불편 실망 별로", 0.2},      // (0+1)/(3+2)
		{"mixed", "만족 불편", 0.5},                  // (1+1)/(2+2)
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tc.want, ToneScore(tc.text), 0.001)
		})
	}
}
