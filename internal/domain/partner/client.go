package partner

// Client represents an advertiser the agency buys media for.
// Campaigns and contracts reference it.
type Client struct {
	ID        int64
	LegalName string
	TaxID     string // RUT or equivalent tax identification number
	Email     string
	Phone     string
	Active    bool
}

// Agency represents the buying agency that runs a campaign
type Agency struct {
	ID   int64
	Name string
}

// Provider sells media space; contracts may reference one
type Provider struct {
	ID    int64
	Name  string
	TaxID string
}
