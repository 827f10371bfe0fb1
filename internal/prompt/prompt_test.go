package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ReviewPipeline/internal/domain"
)

func TestRenderSubstitution(t *testing.T) {
	t.Parallel()

	out := PlaceholderRenderer{}.Render(
		"{productName} / {category} / {minLength}~{maxLength}",
		map[string]string{
			"productName": "무선 이어폰",
			"category":    "전자기기",
			"minLength":   "90",
			"maxLength":   "170",
		},
	)
	assert.Equal(t, "무선 이어폰 / 전자기기 / 90~170", out)
}

func TestRenderUnmatchedPlaceholderLeftVerbatim(t *testing.T) {
	t.Parallel()

	out := PlaceholderRenderer{}.Render(
		"{productName} {unknown}",
		map[string]string{"productName": "전기포트"},
	)
	assert.Equal(t, "전기포트 {unknown}", out)
}

func TestVars(t *testing.T) {
	t.Parallel()

	item := domain.Item{Name: "캠핑 의자", Category: "아웃도어", Price: 32900}
	settings := domain.ValidationSettings{MinLength: 90, MaxLength: 170}

	vars := Vars(item, settings)
	assert.Equal(t, "캠핑 의자", vars["productName"])
	assert.Equal(t, "아웃도어", vars["category"])
	assert.Equal(t, "32900", vars["price"])
	assert.Equal(t, "90", vars["minLength"])
	assert.Equal(t, "170", vars["maxLength"])
}
