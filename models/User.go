package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleVolunteer = "volunteer"
	RoleOrganiser = "organiser"
)

type User struct {
	gorm.Model
	Name      string `json:"name"`
	Email     string `json:"email" gorm:"uniqueIndex"`
	Password  string `json:"-"`
	Role      string `json:"role" gorm:"type:varchar(20);default:volunteer;index"` // volunteer, organiser
	Phone     string `json:"phone"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarURL"`
	Verified  *bool  `json:"verified"`
	// Volunteer fields
	City                 string         `json:"city"`
	College              string         `json:"college"`
	Skills               datatypes.JSON `json:"skills"`
	TotalEventsCompleted int            `json:"totalEventsCompleted"`
	// Organiser fields
	OrgName       string `json:"orgName"`
	ContactPerson string `json:"contactPerson"`
	Logo          string `json:"logo"`
	Description   string `json:"description"`
}

// Custom JSON marshaling so the skills JSON column serializes as a plain array
func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		Skills []string `json:"skills"`
		*Alias
	}{
		Skills: []string{},
		Alias:  (*Alias)(u),
	}

	if u.Skills != nil {
		var skills []string
		if err := json.Unmarshal(u.Skills, &skills); err == nil {
			aux.Skills = skills
		}
	}

	return json.Marshal(aux)
}
