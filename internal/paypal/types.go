package paypal

import "encoding/json"

// Money is a v2 amount. Values are decimal strings with two places.
type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type OrderRequest struct {
	Intent             string              `json:"intent"`
	PurchaseUnits      []PurchaseUnit      `json:"purchase_units"`
	ApplicationContext *ApplicationContext `json:"application_context,omitempty"`
}

type PurchaseUnit struct {
	Amount OrderAmount `json:"amount"`
	Items  []OrderItem `json:"items"`
}

type OrderAmount struct {
	Money
	Breakdown *AmountBreakdown `json:"breakdown,omitempty"`
}

type AmountBreakdown struct {
	ItemTotal Money  `json:"item_total"`
	Shipping  *Money `json:"shipping,omitempty"`
	TaxTotal  *Money `json:"tax_total,omitempty"`
}

type OrderItem struct {
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
	UnitAmount Money  `json:"unit_amount"`
}

type ApplicationContext struct {
	BrandName   string `json:"brand_name,omitempty"`
	LandingPage string `json:"landing_page,omitempty"`
	UserAction  string `json:"user_action,omitempty"`
	ReturnURL   string `json:"return_url,omitempty"`
	CancelURL   string `json:"cancel_url,omitempty"`
}

// Order is the v2 checkout order returned on creation.
type Order struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []Link `json:"links,omitempty"`
}

// PaymentRequest is a v1 sale payment.
type PaymentRequest struct {
	Intent       string        `json:"intent"`
	Payer        Payer         `json:"payer"`
	Transactions []Transaction `json:"transactions"`
	NoteToPayer  string        `json:"note_to_payer,omitempty"`
	RedirectURLs *RedirectURLs `json:"redirect_urls,omitempty"`
}

type Payer struct {
	PaymentMethod string     `json:"payment_method"`
	PayerInfo     *PayerInfo `json:"payer_info,omitempty"`
}

type PayerInfo struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PayerID   string `json:"payer_id,omitempty"`
}

type Transaction struct {
	Amount         Amount          `json:"amount"`
	Description    string          `json:"description,omitempty"`
	InvoiceNumber  string          `json:"invoice_number,omitempty"`
	ItemList       *ItemList       `json:"item_list,omitempty"`
	PaymentOptions *PaymentOptions `json:"payment_options,omitempty"`
}

type Amount struct {
	Total    string         `json:"total"`
	Currency string         `json:"currency"`
	Details  *AmountDetails `json:"details,omitempty"`
}

type AmountDetails struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Tax      string `json:"tax"`
}

type ItemList struct {
	Items           []Item           `json:"items"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
}

type Item struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Quantity    string `json:"quantity"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	SKU         string `json:"sku,omitempty"`
}

type ShippingAddress struct {
	RecipientName string `json:"recipient_name"`
	Line1         string `json:"line1"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	CountryCode   string `json:"country_code"`
}

type PaymentOptions struct {
	AllowedPaymentMethod string `json:"allowed_payment_method"`
}

type RedirectURLs struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

// Payment is a v1 payment as returned by create and execute. Raw keeps the
// full upstream document.
type Payment struct {
	ID           string          `json:"id"`
	State        string          `json:"state"`
	Payer        Payer           `json:"payer"`
	Transactions []Transaction   `json:"transactions"`
	Links        []Link          `json:"links"`
	Raw          json.RawMessage `json:"-"`
}

// ApprovalURL returns the buyer redirect link, or "" when absent.
func (p *Payment) ApprovalURL() string {
	for _, link := range p.Links {
		if link.Rel == "approval_url" {
			return link.Href
		}
	}
	return ""
}
