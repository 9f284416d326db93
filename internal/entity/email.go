package entity

import "strings"

var (
	gmailDomains   = map[string]bool{"gmail.com": true, "googlemail.com": true}
	outlookDomains = map[string]bool{"hotmail.com": true, "outlook.com": true, "live.com": true, "msn.com": true}
	yahooDomains   = map[string]bool{"yahoo.com": true, "ymail.com": true, "rocketmail.com": true}
	icloudDomains  = map[string]bool{"icloud.com": true, "me.com": true, "mac.com": true}
)

// NormalizeEmail lowercases the address and folds provider-specific aliases onto the canonical
// mailbox: gmail dots and +tags, googlemail.com, outlook and icloud +tags, yahoo -tags.
// Input without exactly one "@" is only lowercased.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return email
	}

	switch {
	case gmailDomains[domain]:
		local, _, _ = strings.Cut(local, "+")
		local = strings.ReplaceAll(local, ".", "")
		domain = "gmail.com"
	case outlookDomains[domain], icloudDomains[domain]:
		local, _, _ = strings.Cut(local, "+")
	case yahooDomains[domain]:
		if i := strings.LastIndex(local, "-"); i > 0 {
			local = local[:i]
		}
	}
	if local == "" {
		return email
	}
	return local + "@" + domain
}
