package output

import (
	"fmt"
	"io"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"

	urlutil "github.com/mathursrus/LinkedIn-Network/internal/utils/url"
	"github.com/mathursrus/LinkedIn-Network/pkg/models"
)

// Markdown converts the HTML rendering of rec to GitHub flavored Markdown
func Markdown(rec *models.JobRecord) (string, error) {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	// Profile links are stored absolute; resolve anything that is not
	converter.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			href, exists := selec.Attr("href")
			if !exists {
				return nil
			}
			str := fmt.Sprintf("[%s](%s)", selec.Text(), urlutil.ResolveURL(urlutil.SiteBase, href))
			return &str
		},
	})

	return converter.ConvertString(RenderHTML(rec))
}

// WriteMarkdown writes the Markdown rendering of rec to w
func WriteMarkdown(w io.Writer, rec *models.JobRecord) error {
	s, err := Markdown(rec)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, s)
	return err
}
