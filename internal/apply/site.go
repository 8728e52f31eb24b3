package apply

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Control locates one element of an application flow. XPath drives the
// browser; Probe and ProbeText let a goquery pass over an HTML snapshot
// confirm the element exists before the browser is asked to wait for it.
type Control struct {
	Name      string
	XPath     string
	Probe     string
	ProbeText string
}

// FindIn reports whether the control is present in the parsed page
func (c Control) FindIn(doc *goquery.Document) bool {
	found := false
	doc.Find(c.Probe).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if c.ProbeText == "" || strings.Contains(s.Text(), c.ProbeText) {
			found = true
			return false
		}
		return true
	})
	return found
}

// LoginFlow describes a site's sign-in form
type LoginFlow struct {
	URL      string
	Username Control
	Password Control
	Submit   Control
}

// SiteProfile holds the selectors for one recognized job site
type SiteProfile struct {
	Name      string
	Hosts     []string
	EasyApply Control
	FileInput Control
	Submit    Control
	Login     *LoginFlow
}

// Matches reports whether rawURL belongs to the site
func (p SiteProfile) Matches(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, h := range p.Hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// LinkedIn is the only site with a registered application flow
var LinkedIn = SiteProfile{
	Name:  "linkedin",
	Hosts: []string{"linkedin.com"},
	EasyApply: Control{
		Name:      "easy apply",
		XPath:     `//button[contains(., 'Easy Apply')]`,
		Probe:     "button",
		ProbeText: "Easy Apply",
	},
	FileInput: Control{
		Name:  "resume upload",
		XPath: `//input[@type='file']`,
		Probe: "input[type='file']",
	},
	Submit: Control{
		Name:      "submit application",
		XPath:     `//button[contains(., 'Submit application')]`,
		Probe:     "button",
		ProbeText: "Submit application",
	},
	Login: &LoginFlow{
		URL:      "https://www.linkedin.com/login",
		Username: Control{Name: "username", XPath: `//input[@id='username']`, Probe: "input#username"},
		Password: Control{Name: "password", XPath: `//input[@id='password']`, Probe: "input#password"},
		Submit:   Control{Name: "sign in", XPath: `//button[@type='submit']`, Probe: "button[type='submit']"},
	},
}

// Registry maps job URLs to site profiles
type Registry struct {
	profiles []SiteProfile
}

// NewRegistry creates a registry holding the given profiles
func NewRegistry(profiles ...SiteProfile) *Registry {
	return &Registry{profiles: profiles}
}

// DefaultRegistry recognizes LinkedIn only
func DefaultRegistry() *Registry {
	return NewRegistry(LinkedIn)
}

// Lookup returns the profile for rawURL, if any
func (r *Registry) Lookup(rawURL string) (SiteProfile, bool) {
	for _, p := range r.profiles {
		if p.Matches(rawURL) {
			return p, true
		}
	}
	return SiteProfile{}, false
}
