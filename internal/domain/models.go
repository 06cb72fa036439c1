package domain

import "time"

type Channel string

const (
	ChannelNegozioDonna Channel = "negozio_donna"
	ChannelNegozioUomo  Channel = "negozio_uomo"
	ChannelEcommerce    Channel = "ecommerce"
	ChannelMarketplace  Channel = "marketplace"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelNegozioDonna, ChannelNegozioUomo, ChannelEcommerce, ChannelMarketplace:
		return true
	}
	return false
}

const (
	AreaFerraris = "Ferraris"
	AreaZuklat   = "Zuklat"
)

// EcommerceUser is the user recorded on every record produced from an ecommerce export.
const EcommerceUser = "ecommerce"

type RecordKind string

const (
	KindSales     RecordKind = "sales"
	KindReturns   RecordKind = "returns"
	KindInventory RecordKind = "inventory"
)

func (k RecordKind) Valid() bool {
	return k == KindSales || k == KindReturns || k == KindInventory
}

// UploadKind identifies which normalizer handles an uploaded file.
type UploadKind string

const (
	UploadStoreSales UploadKind = "store-sales"
	UploadEcommerce  UploadKind = "ecommerce"
	UploadInventory  UploadKind = "inventory"
)

func (k UploadKind) Valid() bool {
	return k == UploadStoreSales || k == UploadEcommerce || k == UploadInventory
}

type SaleRecord struct {
	Date           string  `json:"date"`
	User           string  `json:"user"`
	Channel        Channel `json:"channel"`
	SKU            string  `json:"sku"`
	Quantity       int     `json:"quantity"`
	Price          float64 `json:"price"`
	Amount         float64 `json:"amount"`
	Brand          string  `json:"brand,omitempty"`
	Category       string  `json:"category,omitempty"`
	Season         string  `json:"season,omitempty"`
	Marketplace    string  `json:"marketplace,omitempty"`
	PaymentMethod  string  `json:"paymentMethod,omitempty"`
	Area           string  `json:"area,omitempty"`
	Country        string  `json:"country,omitempty"`
	OrderReference string  `json:"orderReference,omitempty"`
	ShippingCost   float64 `json:"shippingCost,omitempty"`
	TaxRate        float64 `json:"taxRate,omitempty"`
	Documento      string  `json:"documento,omitempty"`
	Numero         string  `json:"numero,omitempty"`
}

// ReturnRecord carries a signed Amount: negative for a refunded item,
// positive for a return shipping deduction withheld from the refund.
type ReturnRecord struct {
	Date               string  `json:"date"`
	User               string  `json:"user"`
	Channel            Channel `json:"channel"`
	SKU                string  `json:"sku,omitempty"`
	Quantity           int     `json:"quantity"`
	Price              float64 `json:"price"`
	Amount             float64 `json:"amount"`
	Brand              string  `json:"brand,omitempty"`
	Category           string  `json:"category,omitempty"`
	Season             string  `json:"season,omitempty"`
	Marketplace        string  `json:"marketplace,omitempty"`
	PaymentMethod      string  `json:"paymentMethod,omitempty"`
	Area               string  `json:"area,omitempty"`
	Country            string  `json:"country,omitempty"`
	OrderReference     string  `json:"orderReference,omitempty"`
	Description        string  `json:"description,omitempty"`
	ReturnShippingCost float64 `json:"returnShippingCost,omitempty"`
	IsDeduction        bool    `json:"isDeduction,omitempty"`
	TaxRate            float64 `json:"taxRate,omitempty"`
	Documento          string  `json:"documento,omitempty"`
	Numero             string  `json:"numero,omitempty"`
}

type InventoryRecord struct {
	SKU           string  `json:"sku"`
	Brand         string  `json:"brand"`
	PurchasePrice float64 `json:"purchasePrice"`
	SellPrice     float64 `json:"sellPrice"`
	Category      string  `json:"category,omitempty"`
	Collection    string  `json:"collection,omitempty"`
}

// PaymentMapping is the operator-maintained classification of a payment method.
type PaymentMapping struct {
	PaymentMethod string  `json:"paymentMethod"`
	MacroArea     string  `json:"macroArea"`
	Channel       Channel `json:"channel"`
}

type Duplicate struct {
	Row    int    `json:"row"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

type StoreSalesResult struct {
	Success   bool         `json:"success"`
	Data      []SaleRecord `json:"data"`
	Errors    []string     `json:"errors"`
	TotalRows int          `json:"totalRows"`
	ValidRows int          `json:"validRows"`
}

type EcommerceResult struct {
	Success            bool           `json:"success"`
	Sales              []SaleRecord   `json:"sales"`
	Returns            []ReturnRecord `json:"returns"`
	Errors             []string       `json:"errors"`
	Duplicates         []Duplicate    `json:"duplicates"`
	TotalRows          int            `json:"totalRows"`
	ValidSalesRows     int            `json:"validSalesRows"`
	ValidReturnsRows   int            `json:"validReturnsRows"`
	SkippedDuplicates  int            `json:"skippedDuplicates"`
	TotalSalesAmount   float64        `json:"totalSalesAmount"`
	TotalReturnsAmount float64        `json:"totalReturnsAmount"`
}

type InventoryResult struct {
	Success        bool              `json:"success"`
	ProcessedCount int               `json:"processedCount"`
	ProcessedData  []InventoryRecord `json:"processedData"`
	Errors         []string          `json:"errors"`
	Warnings       []string          `json:"warnings"`
}

// UploadPreview is what the caller inspects before confirming an upload.
// Exactly one of the result pointers is set, matching Kind.
type UploadPreview struct {
	UploadID   string            `json:"uploadId"`
	Kind       UploadKind        `json:"kind"`
	Filename   string            `json:"filename"`
	StoreSales *StoreSalesResult `json:"storeSales,omitempty"`
	Ecommerce  *EcommerceResult  `json:"ecommerce,omitempty"`
	Inventory  *InventoryResult  `json:"inventory,omitempty"`
}

// Batch is a normalized set of records addressed to the persistence layer.
type Batch struct {
	Kind      RecordKind        `json:"kind"`
	Sales     []SaleRecord      `json:"sales,omitempty"`
	Returns   []ReturnRecord    `json:"returns,omitempty"`
	Inventory []InventoryRecord `json:"inventory,omitempty"`
}

func (b Batch) Len() int {
	switch b.Kind {
	case KindSales:
		return len(b.Sales)
	case KindReturns:
		return len(b.Returns)
	case KindInventory:
		return len(b.Inventory)
	}
	return 0
}

// Slice returns the records in [from, to) as a batch of the same kind.
func (b Batch) Slice(from, to int) Batch {
	out := Batch{Kind: b.Kind}
	switch b.Kind {
	case KindSales:
		out.Sales = b.Sales[from:to]
	case KindReturns:
		out.Returns = b.Returns[from:to]
	case KindInventory:
		out.Inventory = b.Inventory[from:to]
	}
	return out
}

type BulkResult struct {
	SavedCount        int `json:"savedCount"`
	SkippedDuplicates int `json:"skippedDuplicates"`
}

type StoredRecord struct {
	ID        string           `json:"id"`
	Kind      RecordKind       `json:"kind"`
	Sale      *SaleRecord      `json:"sale,omitempty"`
	Return    *ReturnRecord    `json:"return,omitempty"`
	Inventory *InventoryRecord `json:"inventory,omitempty"`
}

const (
	RoleAdmin     = "admin"
	RoleNegozio   = "negozio"
	RoleEcommerce = "ecommerce"
	RoleViewer    = "viewer"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleNegozio, RoleEcommerce, RoleViewer:
		return true
	}
	return false
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}
