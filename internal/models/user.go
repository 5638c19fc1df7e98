package models

// AdminUser is a back-office account. The storefront itself is anonymous;
// only admins authenticate.
type AdminUser struct {
	BaseModel
	Name         string `json:"name"`
	Email        string `gorm:"uniqueIndex" json:"email"`
	PasswordHash string `json:"-"`
	Role         string `gorm:"default:admin" json:"role"`
}
