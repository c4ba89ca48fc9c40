package report

import (
	"html/template"

	"video-labeler/domain/frame"
)

// Entry is one element of index.json.
// Individual labels are folded into AllLabels.
type Entry struct {
	Filename  string `json:"filename"`
	Seconds   int    `json:"seconds"`
	Time      string `json:"time"`
	AllLabels string `json:"allLabels"`
}

// NewEntry converts a frame record to its JSON form
func NewEntry(r frame.Record) Entry {
	return Entry{
		Filename:  r.Filename,
		Seconds:   r.OffsetSeconds,
		Time:      r.Time(),
		AllLabels: r.LabelSummary,
	}
}

// pageTemplate renders index.html: one table row per frame, the image on the
// left and its time and labels on the right.
var pageTemplate = template.Must(template.New("index.html").Parse(`<html><head><style>
tr.row {margin-bottom:1em;}
td {vertical-align:top;}
td.thumbnail {width:50%;}
td.metadata {width:50%; padding-left:2em;}
div.timecode {font-weight:bold; text-decoration:underline;}
ul {list-style: none; padding-left:0; margin-top:0;}
img {max-width:100%;}
</style></head><body>
<table>
{{- range .}}
<tr class="row"><td class="thumbnail">
<img src="{{.Filename}}" />
</td><td class="metadata">
<div class="timecode">{{.Time}}</div>
<div class="labels"><ul>
{{- range .Labels}}
<li>{{.Name}} : {{.ConfidencePercent}}%</li>
{{- end}}
</ul></div>
</td></tr>
{{- end}}
</table>
</body></html>
`))
