package config

import (
	"fmt"
	"strings"

	"panson/domain/notification"
)

// RecipientLookup resolves recipient queries against the config
type RecipientLookup struct {
	config *Config
}

// NewRecipientLookup creates a recipient lookup from config
func NewRecipientLookup(cfg *Config) *RecipientLookup {
	return &RecipientLookup{config: cfg}
}

// LookupRecipient finds recipients matching the query: key, first name,
// last name or full name, case-insensitive. All matches are returned; the
// caller decides how to handle ambiguity.
func (r *RecipientLookup) LookupRecipient(query string) ([]notification.Recipient, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, notification.ErrRecipientNotFound
	}

	var matches []notification.Recipient
	for key, rc := range r.config.Email.Recipients {
		if recipientMatches(query, key, rc.Name) {
			matches = append(matches, notification.Recipient{
				Name:    rc.Name,
				Address: rc.Address,
			})
		}
	}

	if len(matches) == 0 {
		return nil, notification.ErrRecipientNotFound
	}
	return matches, nil
}

func recipientMatches(query, key, name string) bool {
	if strings.ToLower(key) == query {
		return true
	}

	nameLower := strings.ToLower(name)
	if nameLower == query {
		return true
	}

	parts := strings.Fields(nameLower)
	if len(parts) > 0 && parts[0] == query {
		return true
	}
	if len(parts) > 1 && parts[len(parts)-1] == query {
		return true
	}
	return false
}

// LookupRecipients resolves multiple queries, each possibly
// comma-separated, into a deduplicated recipient list. An ambiguous query
// is an error so the wrong person never gets an email.
func (r *RecipientLookup) LookupRecipients(queries []string) ([]notification.Recipient, error) {
	var recipients []notification.Recipient
	seen := make(map[string]bool)

	for _, q := range queries {
		for _, query := range strings.Split(q, ",") {
			query = strings.TrimSpace(query)
			if query == "" {
				continue
			}

			matches, err := r.LookupRecipient(query)
			if err != nil {
				return nil, fmt.Errorf("recipient %q: %w", query, err)
			}

			if len(matches) > 1 {
				names := make([]string, len(matches))
				for i, m := range matches {
					names[i] = m.Name
				}
				return nil, fmt.Errorf("%w: %q matches %s - use last name to disambiguate",
					notification.ErrAmbiguousRecipient, query, strings.Join(names, ", "))
			}

			if !seen[matches[0].Address] {
				seen[matches[0].Address] = true
				recipients = append(recipients, matches[0])
			}
		}
	}

	if len(recipients) == 0 {
		return nil, notification.ErrRecipientNotFound
	}
	return recipients, nil
}

// GetDefaultCC returns the configured default CC recipients
func (r *RecipientLookup) GetDefaultCC() []notification.Recipient {
	cc := make([]notification.Recipient, len(r.config.Email.DefaultCC))
	for i, rc := range r.config.Email.DefaultCC {
		cc[i] = notification.Recipient{
			Name:    rc.Name,
			Address: rc.Address,
		}
	}
	return cc
}
