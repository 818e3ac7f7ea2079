package models

const megabyte = 1024 * 1024

// Plan is a subscription tier.
type Plan struct {
	Name           string   `json:"name"`
	Price          int      `json:"price"`
	Features       []string `json:"features"`
	CTA            string   `json:"cta"`
	Popular        bool     `json:"popular"`
	MaxUploadBytes int64    `json:"max_upload_bytes"`
}

// SubscriptionPlans returns the plan listing, cheapest first.
func SubscriptionPlans() []Plan {
	return []Plan{
		{
			Name:           "FREE",
			Price:          0,
			Features:       []string{"3 images per day", "2 videos per day", "5 MB max uploads"},
			CTA:            "Current Plan",
			MaxUploadBytes: 5 * megabyte,
		},
		{
			Name:           "PRO",
			Price:          150,
			Features:       []string{"20 images per day", "10 videos per day", "Faster generation", "20 MB max uploads"},
			CTA:            "Upgrade to PRO",
			Popular:        true,
			MaxUploadBytes: 20 * megabyte,
		},
		{
			Name:           "PLUS",
			Price:          250,
			Features:       []string{"40 images per day", "25 videos per day", "Faster generation", "Priority support", "100 MB max uploads"},
			CTA:            "Upgrade to PLUS",
			MaxUploadBytes: 100 * megabyte,
		},
	}
}
