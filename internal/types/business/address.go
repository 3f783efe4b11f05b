package business

// Address represents a postal address on an entity or customer record.
type Address struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country"`
}

// BankDetails holds the receiving bank account of a billing entity.
type BankDetails struct {
	AccountHolderName string `json:"accountHolderName"`
	BankName          string `json:"bankName"`
	AccountNumber     string `json:"accountNumber"`
	IFSCCode          string `json:"ifscCode"`
}
