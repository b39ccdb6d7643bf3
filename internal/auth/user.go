package auth

import "time"

type User struct {
	ID           uint64 `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	// WhatsAppNumber is E.164 ("+14155550123"); empty means no WhatsApp
	// notifications for this user.
	WhatsAppNumber string    `gorm:"type:text;not null;default:''"`
	CreatedAt      time.Time `gorm:"not null;default:now()"`
	UpdatedAt      time.Time `gorm:"not null;default:now()"`
}

func (u *User) ToDTO() map[string]any {
	return map[string]any{
		"id":              u.ID,
		"username":        u.Username,
		"email":           u.Email,
		"whatsapp_number": u.WhatsAppNumber,
		"created_at":      u.CreatedAt,
	}
}
