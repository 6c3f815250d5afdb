package leadscoring

import (
	"strings"
	"time"

	"github.com/rocket-training/ai-service/internal/storage/models"
)

// Interaction type names recognized by the feature extractor.
const (
	TypeEmailOpen      = "email_open"
	TypeEmailClick     = "email_click"
	TypeViewPage       = "view_page"
	TypePageVisit      = "page_visit"
	TypeSubmitForm     = "submit_form"
	TypeFormSubmission = "form_submission"
	TypeChatMessage    = "chat_message"
	TypeChat           = "chat"
	TypeMessage        = "message"
)

// FeatureMap is a flat mapping from feature name to a numeric value.
// Booleans are encoded as 0/1. Recomputed on each scoring call.
type FeatureMap map[string]float64

// sourceEncoding maps a lead source to a quality weight. Unknown sources
// fall through to the lowest bucket.
var sourceEncoding = map[string]float64{
	"website":        5,
	"referral":       5,
	"social_media":   4,
	"organic_search": 4,
	"email_campaign": 3,
	"paid_ads":       3,
	"direct":         2,
	"unknown":        1,
}

var premiumCourseKeywords = []string{"advanced", "premium", "professional", "enterprise"}

// Extractor converts a lead snapshot into a FeatureMap. It is a total
// function: missing optional fields default to zero-equivalents and never
// produce an error.
type Extractor struct {
	now func() time.Time
}

func NewExtractor() *Extractor {
	return &Extractor{now: time.Now}
}

// WithClock fixes the reference instant for time-based features. Used by
// tests to make days-since and recency features reproducible.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

func (e *Extractor) Extract(lead models.Lead) FeatureMap {
	features := FeatureMap{}

	if lead.Phone != "" {
		features["has_phone"] = 1
	} else {
		features["has_phone"] = 0
	}
	features["source_encoded"] = encodeSource(lead.Source)

	features["total_interactions"] = float64(len(lead.Interactions))
	features["unique_interaction_types"] = float64(countUniqueTypes(lead.Interactions))

	if !lead.CreatedAt.IsZero() {
		features["days_since_creation"] = float64(int(e.now().Sub(lead.CreatedAt).Hours() / 24))
	} else {
		features["days_since_creation"] = 0
	}

	features["email_engagement_score"] = emailEngagement(lead.Interactions)
	features["website_activity_score"] = websiteActivity(lead.Interactions)
	features["interaction_frequency"] = interactionFrequency(lead.Interactions)
	features["content_engagement_score"] = contentEngagement(lead.Interactions)

	features["num_interested_courses"] = float64(len(lead.InterestedCourses))
	features["has_premium_interest"] = premiumInterest(lead.InterestedCourses)

	return features
}

func encodeSource(source string) float64 {
	if weight, ok := sourceEncoding[strings.ToLower(source)]; ok {
		return weight
	}
	return 1
}

func countUniqueTypes(interactions []models.Interaction) int {
	seen := make(map[string]struct{})
	for _, in := range interactions {
		seen[in.Type] = struct{}{}
	}
	return len(seen)
}

// emailEngagement weights clicks more than opens: (0.3*opens + 0.7*clicks)
// over all email events, clamped to [0,1].
func emailEngagement(interactions []models.Interaction) float64 {
	var opens, clicks int
	for _, in := range interactions {
		switch in.Type {
		case TypeEmailOpen:
			opens++
		case TypeEmailClick:
			clicks++
		}
	}
	total := opens + clicks
	if total == 0 {
		return 0
	}
	score := (float64(opens)*0.3 + float64(clicks)*0.7) / float64(total)
	return clamp01(score)
}

// websiteActivity blends unique pages visited with total visits, normalized
// against an expected activity level of 10.
func websiteActivity(interactions []models.Interaction) float64 {
	uniquePages := make(map[string]struct{})
	var visits int
	for _, in := range interactions {
		if in.Type == TypeViewPage || in.Type == TypePageVisit {
			visits++
			uniquePages[in.PageURL] = struct{}{}
		}
	}
	if visits == 0 {
		return 0
	}
	score := (float64(len(uniquePages))*0.6 + float64(visits)*0.4) / 10
	return clamp01(score)
}

// interactionFrequency is distinct active days over the observed date span.
func interactionFrequency(interactions []models.Interaction) float64 {
	days := make(map[string]struct{})
	var earliest, latest time.Time
	for _, in := range interactions {
		if in.CreatedAt.IsZero() {
			continue
		}
		days[in.CreatedAt.Format("2006-01-02")] = struct{}{}
		if earliest.IsZero() || in.CreatedAt.Before(earliest) {
			earliest = in.CreatedAt
		}
		if latest.IsZero() || in.CreatedAt.After(latest) {
			latest = in.CreatedAt
		}
	}
	if len(days) == 0 {
		return 0
	}

	span := 1
	if len(days) > 1 {
		span = int(latest.Sub(earliest).Hours()/24) + 1
	}
	return clamp01(float64(len(days)) / float64(span))
}

// contentEngagement weights form submissions higher than chat messages.
func contentEngagement(interactions []models.Interaction) float64 {
	var forms, chats int
	for _, in := range interactions {
		switch in.Type {
		case TypeSubmitForm, TypeFormSubmission:
			forms++
		case TypeChatMessage:
			chats++
		}
	}
	total := forms + chats
	if total == 0 {
		return 0
	}
	score := (float64(forms)*0.8 + float64(chats)*0.2) / float64(total)
	return clamp01(score)
}

func premiumInterest(courses []string) float64 {
	for _, course := range courses {
		name := strings.ToLower(course)
		for _, keyword := range premiumCourseKeywords {
			if strings.Contains(name, keyword) {
				return 1
			}
		}
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
