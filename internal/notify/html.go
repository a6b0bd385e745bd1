package notify

import (
	"html/template"
	"strings"

	"hiresphere/alert-service/internal/digest"
)

// digestTemplate renders the digest email body. Kept deliberately plain —
// the web frontend owns all real presentation; this is a notification, not
// a page.
var digestTemplate = template.Must(template.New("digest").Parse(`<html>
<body>
  <p>Hi {{.Recipient.FullName}},</p>
  <p>Your alert <strong>{{.AlertName}}</strong> matched {{len .Jobs}} new job(s):</p>
  {{if .Personalization}}<p>{{.Personalization}}</p>{{end}}
  <ul>
  {{range .Jobs}}
    <li>
      <a href="{{.URL}}">{{.Title}}</a>{{if .Employer}} at {{.Employer}}{{end}}
      — {{.Location}}, {{.JobType}}, {{.Salary}}
    </li>
  {{end}}
  </ul>
  <p>You receive this email because you created a job alert. Manage your
  alerts from your account settings.</p>
</body>
</html>`))

func renderHTML(dg *digest.Digest) (string, error) {
	var b strings.Builder
	if err := digestTemplate.Execute(&b, dg); err != nil {
		return "", err
	}
	return b.String(), nil
}
