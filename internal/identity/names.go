package identity

import "strings"

// Profile is what the name rules look at.
type Profile struct {
	Name  string
	Email string
}

// NameRule yields a display name, or "" to defer to the next rule.
type NameRule func(Profile) string

// ResolveName evaluates rules top to bottom and returns the first hit.
func ResolveName(p Profile, rules []NameRule) string {
	for _, rule := range rules {
		if name := rule(p); name != "" {
			return name
		}
	}
	return ""
}

func TokenName(p Profile) string {
	return strings.TrimSpace(p.Name)
}

func EmailLocalPart(p Profile) string {
	local, _, _ := strings.Cut(p.Email, "@")
	return local
}

func FullEmail(p Profile) string {
	return p.Email
}

func Literal(name string) NameRule {
	return func(Profile) string { return name }
}

// Directory maps username-only accounts onto synthetic emails under a
// private domain.
type Directory struct {
	Domain string
}

func (d Directory) SyntheticEmail(username string) string {
	return strings.ToLower(username) + "@" + d.Domain
}

func (d Directory) IsSynthetic(email string) bool {
	return strings.HasSuffix(email, "@"+d.Domain)
}

// LoginEmail turns a login identifier into the email it signs in as.
func (d Directory) LoginEmail(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return identifier
	}
	return d.SyntheticEmail(identifier)
}

// SyntheticLocalPart names the user after the username hidden in a
// synthetic email. Real emails defer to the next rule.
func (d Directory) SyntheticLocalPart(p Profile) string {
	if !d.IsSynthetic(p.Email) {
		return ""
	}
	return EmailLocalPart(p)
}

// PostAuthorRules is the fallback order for a post's author name.
func (d Directory) PostAuthorRules() []NameRule {
	return []NameRule{
		TokenName,
		d.SyntheticLocalPart,
		FullEmail,
		Literal("Anonymous"),
	}
}

// ProfileRules is the fallback order for comment authors and presence.
func ProfileRules() []NameRule {
	return []NameRule{
		TokenName,
		EmailLocalPart,
		Literal("User"),
	}
}
