package httpapi

import (
	"html/template"
	"strings"
)

// fragmentTemplate renders the result page as an embeddable list for site
// sections that consume server-rendered markup instead of JSON.
var fragmentTemplate = template.Must(template.New("fragment").Parse(`<ul class="timeline">
{{- range . }}
<li class="timeline-item">
<span class="timeline-date">{{ .Date }}</span>
{{ if .URL }}<a class="timeline-title" href="{{ .URL }}">{{ .Title }}</a>{{ else }}<span class="timeline-title">{{ .Title }}</span>{{ end }}
{{- if .Body }}
<p class="timeline-body">{{ .Body }}</p>
{{- end }}
</li>
{{- end }}
</ul>
`))

func renderFragment(events interface{}) string {
	var b strings.Builder
	if err := fragmentTemplate.Execute(&b, events); err != nil {
		return ""
	}
	return b.String()
}
