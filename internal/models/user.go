package models

// User is one validated user record.
//
// The JSON names are the keys of the local document store, where the ID is the
// map key and is not repeated inside the value. The GORM columns mirror the
// remote Users table.
type User struct {
	ID          string `json:"-" gorm:"column:user_id;primaryKey;type:varchar(3)" validate:"len=3,digits"`
	FirstName   string `json:"First Name" gorm:"column:first_name;type:varchar(100)" validate:"letters"`
	LastName    string `json:"Last Name" gorm:"column:last_name;type:varchar(100)" validate:"letters"`
	Age         int    `json:"Age" gorm:"column:age" validate:"gt=0"`
	Gender      string `json:"Gender" gorm:"column:gender;type:varchar(10)" validate:"oneof=male female other"`
	YearOfBirth int    `json:"Year of Birth" gorm:"column:year_of_birth" validate:"gte=1900,lte=2024"`
}

// TableName pins the remote table name instead of GORM's pluralized default.
func (User) TableName() string {
	return "Users"
}

// UserMap is the local store's mapping from user ID to record.
type UserMap map[string]User
