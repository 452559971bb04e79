package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known job board platform.
type Platform string

const (
	// PlatformGreenhouse is the Greenhouse ATS platform
	PlatformGreenhouse Platform = "greenhouse"
	// PlatformLever is the Lever ATS platform
	PlatformLever Platform = "lever"
	// PlatformWorkday is the Workday ATS platform
	PlatformWorkday Platform = "workday"
	// PlatformAshby is the Ashby ATS platform
	PlatformAshby Platform = "ashby"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

// platformProfile describes how to read postings hosted on one job board.
type platformProfile struct {
	hosts   []string
	content []string
	noise   []string
}

var platforms = map[Platform]platformProfile{
	PlatformGreenhouse: {
		hosts: []string{"greenhouse.io"},
		content: []string{
			".job__description.body",
			".job__description",
			".job-description__content",
			"#content",
			".job-post-container",
		},
		noise: []string{
			".application--wrapper",
			".voluntary-self-id",
			".voluntary-self-id-wrapper",
			"#usa_self_id_section",
			".post-apply",
		},
	},
	PlatformLever: {
		hosts: []string{"lever.co"},
		content: []string{
			".posting-page",
			".section-wrapper.page-full-width",
			".posting-description",
			".content",
		},
		noise: []string{
			".apply-section",
			".lever-application-form",
			".posting-apply",
		},
	},
	PlatformWorkday: {
		hosts: []string{"workday.com", "myworkdayjobs.com"},
		content: []string{
			"[data-automation-id='jobDescription']",
			".gwt-HTML",
			".job-description",
		},
		noise: []string{
			"[data-automation-id='applyButton']",
			".application-section",
		},
	},
	PlatformAshby: {
		hosts: []string{"ashbyhq.com"},
		content: []string{
			"[class*='_descriptionText']",
			"._content_ud4nd_71",
			"main",
		},
		noise: []string{
			"[class*='_applicationForm']",
		},
	},
}

// commonNoise is removed from every job posting regardless of platform.
var commonNoise = []string{
	"form",
	"#application-form",
	".application-form",
	".application--container",
	".apply-button-container",
	"[data-testid='application-form']",
	".voluntary-disclosure",
	".eeo-statement",
	".eeo-section",
	"[data-testid='eeo']",
	".legal-disclosure",
	".self-identification",
	".social-share",
	".share-buttons",
	".social-links",
	".cookie-banner",
	".cookie-consent",
	".gdpr-notice",
}

// DetectPlatform identifies the job board platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Hostname())
	for platform, profile := range platforms {
		for _, suffix := range profile.hosts {
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				return platform
			}
		}
	}
	return PlatformUnknown
}

// PlatformContentSelectors returns content selectors for a platform,
// falling back to the generic job posting selectors.
func PlatformContentSelectors(platform Platform) []string {
	if profile, ok := platforms[platform]; ok {
		return profile.content
	}
	return JobPostingSelectors()
}

// PlatformNoiseSelectors returns the selectors stripped before text extraction.
func PlatformNoiseSelectors(platform Platform) []string {
	selectors := append([]string(nil), commonNoise...)
	if profile, ok := platforms[platform]; ok {
		selectors = append(selectors, profile.noise...)
	}
	return selectors
}
