package bridge

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`(https?://)?([-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6})\b([-a-zA-Z0-9()@:%_+.~#?&/=]*)`)

// ExtractLocators pulls every URL-like token out of the message text and
// appends the attachment URLs after them. Schemeless matches get https://
// prepended so the publish API always receives absolute locators. Duplicates
// are dropped; the first occurrence keeps its position.
func ExtractLocators(text string, attachments []string) []string {
	seen := make(map[string]struct{})
	locators := make([]string, 0, len(attachments))
	add := func(locator string) {
		if _, ok := seen[locator]; ok {
			return
		}
		seen[locator] = struct{}{}
		locators = append(locators, locator)
	}

	for _, match := range urlPattern.FindAllStringSubmatch(text, -1) {
		scheme, host, rest := match[1], match[2], match[3]
		if scheme == "" {
			scheme = "https://"
		}
		add(scheme + host + rest)
	}
	for _, attachment := range attachments {
		attachment = strings.TrimSpace(attachment)
		if attachment == "" {
			continue
		}
		if !strings.HasPrefix(attachment, "http://") && !strings.HasPrefix(attachment, "https://") {
			attachment = "https://" + attachment
		}
		add(attachment)
	}
	return locators
}
