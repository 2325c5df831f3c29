package domain

// ProductCode is static reference data describing a product: a named
// capability bundle an organization can subscribe to.
type ProductCode struct {
	Code              string  `json:"code" gorm:"primaryKey;type:text"`
	Description       string  `json:"description" gorm:"type:text;not null"`
	TypeCode          string  `json:"type_code" gorm:"type:text;not null"`
	NeedReview        bool    `json:"need_review" gorm:"not null;default:false"`
	NeedSystemAdmin   bool    `json:"need_system_admin" gorm:"not null;default:false"`
	CanResubmit       bool    `json:"can_resubmit" gorm:"not null;default:false"`
	Hidden            bool    `json:"hidden" gorm:"not null;default:false"`
	ParentCode        *string `json:"parent_code,omitempty" gorm:"type:text"`
	LinkedProductCode *string `json:"linked_product_code,omitempty" gorm:"type:text"`
	KeycloakGroup     *string `json:"keycloak_group,omitempty" gorm:"type:text"`
}

func (ProductCode) TableName() string { return "product_codes" }

// Qualified-supplier product codes get a dedicated review action on their
// staff tasks.
const (
	CodeMhrQualifiedLawyer       = "MHR_QSLN"
	CodeMhrQualifiedHomeDealer   = "MHR_QSHD"
	CodeMhrQualifiedManufacturer = "MHR_QSHM"
)

func IsQualifiedSupplier(code string) bool {
	switch code {
	case CodeMhrQualifiedLawyer, CodeMhrQualifiedHomeDealer, CodeMhrQualifiedManufacturer:
		return true
	default:
		return false
	}
}
