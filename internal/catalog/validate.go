package catalog

import (
	"regexp"
	"strings"

	"vitrina/internal"
	"vitrina/internal/util"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationErrors) add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func ValidateConfig(cfg internal.Config) error {
	var errs ValidationErrors
	if strings.TrimSpace(cfg.BusinessName) == "" {
		errs.add("businessName", "is required")
	}
	if email := strings.TrimSpace(cfg.Email); email != "" && !emailPattern.MatchString(email) {
		errs.add("email", "is not a valid email address")
	}
	if wa := strings.TrimSpace(cfg.WhatsApp); wa != "" {
		if n := countDigits(wa); n < 10 || n > 15 {
			errs.add("whatsapp", "must have between 10 and 15 digits")
		}
	}
	if phone := strings.TrimSpace(cfg.Phone); phone != "" && countDigits(phone) < 7 {
		errs.add("phone", "must have at least 7 digits")
	}
	links := []struct {
		field string
		value string
	}{
		{"logo", cfg.Logo},
		{"website", cfg.Website},
		{"instagram", cfg.Instagram},
		{"facebook", cfg.Facebook},
		{"tiktok", cfg.TikTok},
	}
	for _, link := range links {
		if v := strings.TrimSpace(link.value); v != "" && !isHTTPURL(v) {
			errs.add(link.field, "must start with http:// or https://")
		}
	}
	return errs.orNil()
}

type CategoryInput struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

func ValidateCategory(in CategoryInput) error {
	var errs ValidationErrors
	if strings.TrimSpace(in.Name) == "" {
		errs.add("name", "is required")
	}
	return errs.orNil()
}

type ProductInput struct {
	Name      string   `json:"name"`
	ShortDesc string   `json:"shortDesc"`
	LongDesc  string   `json:"longDesc"`
	Price     string   `json:"price"`
	Features  []string `json:"features"`
	Specs     string   `json:"specs"`
	Image     string   `json:"image"`
	Icon      string   `json:"icon"`
}

func ValidateProduct(in ProductInput) error {
	var errs ValidationErrors
	if strings.TrimSpace(in.Name) == "" {
		errs.add("name", "is required")
	}
	if price := strings.TrimSpace(in.Price); price != "" {
		if _, ok := util.FindAmount(price); !ok {
			errs.add("price", "must contain an amount")
		}
	}
	if img := strings.TrimSpace(in.Image); img != "" && !isHTTPURL(img) {
		errs.add("image", "must start with http:// or https://")
	}
	return errs.orNil()
}

func (in ProductInput) product(id string) internal.Product {
	features := make([]string, 0, len(in.Features))
	for _, f := range in.Features {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	return internal.Product{
		ID:        id,
		Name:      strings.TrimSpace(in.Name),
		ShortDesc: strings.TrimSpace(in.ShortDesc),
		LongDesc:  strings.TrimSpace(in.LongDesc),
		Price:     strings.TrimSpace(in.Price),
		Features:  features,
		Specs:     strings.TrimSpace(in.Specs),
		Image:     strings.TrimSpace(in.Image),
		Icon:      strings.TrimSpace(in.Icon),
	}
}

func isHTTPURL(v string) bool {
	lower := strings.ToLower(v)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
