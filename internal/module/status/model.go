package status

// Status is an entry of the global status catalogue. The code is the
// stable identifier the state machine works with; names are per-locale
// display values.
type Status struct {
	ID         int64   `json:"id" gorm:"primaryKey"`
	Code       string  `json:"code" gorm:"uniqueIndex;size:50"`
	Slug       string  `json:"slug" gorm:"size:80"`
	Icon       string  `json:"icon" gorm:"size:50"`
	NameEN     *string `json:"name_en,omitempty" gorm:"size:50"`
	NameRU     *string `json:"name_ru,omitempty" gorm:"size:50"`
	NameKK     *string `json:"name_kk,omitempty" gorm:"size:50"`
	IsOptional bool    `json:"is_optional" gorm:"default:false"`
	PartnerID  *int64  `json:"partner_id,omitempty" gorm:"index"`
}

// TableName returns the database table name.
func (Status) TableName() string {
	return "statuses"
}

// Name returns the display name for the given locale, falling back to
// the English name.
func (s *Status) Name(locale string) string {
	var name *string
	switch locale {
	case "ru":
		name = s.NameRU
	case "kk":
		name = s.NameKK
	default:
		name = s.NameEN
	}
	if name == nil {
		name = s.NameEN
	}
	if name == nil {
		return s.Code
	}
	return *name
}

// Known status codes with registered transition handlers.
const (
	CodeNew                     = "new"
	CodeSendOTP                 = "send_otp"
	CodeVerifyOTP               = "verify_otp"
	CodePhotoCapturing          = "photo_capturing"
	CodePOSTerminalRegistration = "pos_terminal_registration"
	CodeCardReturnedToBank      = "card_returned_to_bank"
	CodeCancelledAtClient       = "cancelled_at_client"
	CodeTransferToCDEK          = "transfer_to_cdek"
)
