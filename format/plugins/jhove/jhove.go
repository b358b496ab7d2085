// Package jhove validates file formats with JHOVE, see
// https://jhove.openpreservation.org/
//
// JHOVE is run once per file, with the module matching the file's type.  Its
// JSON output is used if possible, since some modules have been seen to crash
// while writing JSON, XML output is tried next.
package jhove

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/format"
	"github.com/birkland/bagval/pattern"
	"github.com/pkg/errors"
)

// Tag attributes the plugin's diagnostics
const Tag = "JHOVE-Plugin"

// Environment variables consulted when no executable or configuration is
// given explicitly
const (
	AppEnv  = "JHOVE_APP"
	ConfEnv = "JHOVE_APP_CONF"
)

type module struct {
	name  string
	types []string
}

// The empty module lets JHOVE choose one itself.  The UTF8-hul and ASCII-hul
// modules are not used, since identifiers do not reliably report charsets.
var modules = []module{
	{"", []string{"text/plain"}},
	{"AIFF-hul", []string{"audio/x-aiff"}},
	{"GIF-hul", []string{"image/gif"}},
	{"HTML-hul", []string{"text/html"}},
	{"JPEG-hul", []string{"image/jpeg"}},
	{"JPEG2000-hul", []string{"image/jp2", "image/jpx"}},
	{"PDF-hul", []string{"application/pdf"}},
	{"TIFF-hul", []string{"image/tiff", "image/tiff-fx", "image/ief"}},
	{"WAVE-hul", []string{"audio/vnd.wave"}},
	{"XML-hul", []string{"text/xml"}},
	{"PNG-gdm", []string{"image/png"}},
}

// Plugin runs JHOVE
type Plugin struct {
	App  string        // JHOVE executable
	Conf string        // JHOVE configuration file, optional
	Run  format.Runner // format.Exec when nil
}

// New creates a plugin, falling back to the environment for an empty app or
// conf, and to "jhove" on the PATH
func New(app, conf string) *Plugin {
	if app == "" {
		app = os.Getenv(AppEnv)
	}
	if app == "" {
		app = "jhove"
	}
	if conf == "" {
		conf = os.Getenv(ConfEnv)
	}
	return &Plugin{App: app, Conf: conf}
}

// Tag implements format.Plugin
func (p *Plugin) Tag() string {
	return Tag
}

// Summary implements format.Plugin
func (p *Plugin) Summary() string {
	return "file format validation based on JHOVE"
}

// Description implements format.Plugin
func (p *Plugin) Description() string {
	mapped := make([]string, 0, len(modules))
	for _, m := range modules {
		mapped = append(mapped, fmt.Sprintf("%s: [%s]", m.name, strings.Join(m.types, ", ")))
	}
	return "This plugin uses the JHOVE software by the Open Preservation Foundation to validate file formats: " +
		"https://jhove.openpreservation.org/ It is configured with the following module-map: " +
		strings.Join(mapped, "; ")
}

// DefaultSelector selects every type a module is known for
func (p *Plugin) DefaultSelector() pattern.Selector {
	var types []string
	for _, m := range modules {
		types = append(types, m.types...)
	}
	return pattern.NewSelector(types...)
}

// Module returns the JHOVE module for a MIME type
func Module(mimeType string) (string, bool) {
	mimeType = strings.ToLower(mimeType)
	for _, m := range modules {
		for _, t := range m.types {
			if t == mimeType {
				return m.name, true
			}
		}
	}
	return "", false
}

type messages struct {
	info   []string
	errors []string
}

func (m *messages) add(severity, text, id string) {
	if id != "" {
		text = fmt.Sprintf("%s (%s)", text, id)
	}
	if severity == "info" {
		m.info = append(m.info, text)
	} else {
		m.errors = append(m.errors, text)
	}
}

// ValidateFileFormat accepts a file if JHOVE reports no messages other than
// informational ones
func (p *Plugin) ValidateFileFormat(ctx context.Context, path, mimeType string) (bool, *bagval.Report) {
	r := bagval.NewReport(Tag)

	mod, ok := Module(mimeType)
	if !ok {
		r.Logf(bagval.Error, "File '%s' unchecked by jhove, no suitable module found for %s.", path, mimeType)
		return false, r
	}

	result := p.check(ctx, path, mod)

	for _, msg := range result.info {
		r.Log(bagval.Info, msg)
	}

	if len(result.errors) == 0 {
		r.Logf(bagval.Info, "File '%s' is well-formed.", path)
		return true, r
	}

	for _, msg := range result.errors {
		r.Log(bagval.Error, msg)
	}
	return false, r
}

func (p *Plugin) check(ctx context.Context, path, mod string) messages {
	args := p.command(mod)

	result, err := p.callJSON(ctx, args, path)
	if err != nil {
		result, err = p.callXML(ctx, args, path)
	}
	if err != nil {
		return messages{errors: []string{
			fmt.Sprintf("%s: File '%s', unable to invoke jhove with module '%s'.", Tag, path, mod),
		}}
	}
	if result == nil {
		return messages{errors: []string{
			fmt.Sprintf("%s: File '%s', jhove gave bad response.", Tag, path),
		}}
	}
	return *result
}

func (p *Plugin) command(mod string) []string {
	args := []string{"-l", "OFF", "-e", "utf8"}
	if p.Conf != "" {
		args = append(args, "-c", p.Conf)
	}
	if mod != "" {
		args = append(args, "-m", mod)
	}
	return args
}

func withHandler(args []string, handler, path string) []string {
	full := make([]string, 0, len(args)+3)
	full = append(full, args...)
	return append(full, "-h", handler, path)
}

func (p *Plugin) run(ctx context.Context, args []string) ([]byte, error) {
	run := p.Run
	if run == nil {
		run = format.Exec
	}
	return run(ctx, p.App, args...)
}

type jsonResponse struct {
	Jhove *struct {
		RepInfo []struct {
			Messages []struct {
				Message  string `json:"message"`
				Severity string `json:"severity"`
				ID       string `json:"id"`
			} `json:"messages"`
		} `json:"repInfo"`
	} `json:"jhove"`
}

// callJSON returns an error if JHOVE could not be run, and nil messages for a
// response it cannot make sense of
func (p *Plugin) callJSON(ctx context.Context, args []string, path string) (*messages, error) {
	out, err := p.run(ctx, withHandler(args, "JSON", path))
	if err != nil {
		return nil, errors.Wrap(err, "jhove JSON call failed")
	}

	var resp jsonResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, nil
	}
	if resp.Jhove == nil || len(resp.Jhove.RepInfo) == 0 {
		return nil, nil
	}

	result := &messages{}
	for _, m := range resp.Jhove.RepInfo[0].Messages {
		if m.Severity == "" {
			continue
		}
		result.add(m.Severity, m.Message, m.ID)
	}
	return result, nil
}

type xmlResponse struct {
	XMLName xml.Name `xml:"jhove"`
	RepInfo *struct {
		Messages []struct {
			Severity string `xml:"severity,attr"`
			ID       string `xml:"id,attr"`
			Text     string `xml:",chardata"`
		} `xml:"messages>message"`
	} `xml:"repInfo"`
}

func (p *Plugin) callXML(ctx context.Context, args []string, path string) (*messages, error) {
	out, err := p.run(ctx, withHandler(args, "XML", path))
	if err != nil {
		return nil, errors.Wrap(err, "jhove XML call failed")
	}

	var resp xmlResponse
	if err := xml.Unmarshal(out, &resp); err != nil {
		return nil, nil
	}

	if resp.RepInfo == nil {
		return nil, nil
	}

	result := &messages{}
	for _, m := range resp.RepInfo.Messages {
		if m.Severity == "" {
			continue
		}
		result.add(m.Severity, strings.TrimSpace(m.Text), m.ID)
	}
	return result, nil
}
