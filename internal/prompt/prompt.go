// Package prompt renders generation prompts from configured templates.
// Rendering is plain placeholder substitution, kept behind an interface so
// a stricter engine could be swapped in without touching the generator.
package prompt

import (
	"strconv"
	"strings"

	"ReviewPipeline/internal/domain"
)

// Renderer turns a template and a set of named values into a model prompt.
type Renderer interface {
	Render(template string, vars map[string]string) string
}

// PlaceholderRenderer substitutes `{name}` markers with their values.
// Markers without a matching value are left verbatim.
type PlaceholderRenderer struct{}

var _ Renderer = PlaceholderRenderer{}

func (PlaceholderRenderer) Render(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// Vars builds the placeholder set for one generation attempt.
func Vars(item domain.Item, settings domain.ValidationSettings) map[string]string {
	return map[string]string{
		"productName": item.Name,
		"category":    item.Category,
		"price":       strconv.FormatInt(item.Price, 10),
		"minLength":   strconv.Itoa(settings.MinLength),
		"maxLength":   strconv.Itoa(settings.MaxLength),
	}
}

// DefaultTemplate seeds the validation settings on first boot; operators
// edit it from the dashboard afterwards.
const DefaultTemplate = `{productName} ({category}) 상품에 대한 후기를 생생하게 작성해주세요.
{minLength}~{maxLength}자 분량으로, 실제 사용 경험처럼 묘사하고 광고성 문구는 삼가주세요.
예: "배송이 빨라서 원하는 날에 도착했고, 품질도 만족스러워 인테리어에도 잘 어울려요."`
