package models

// All lists every persisted model, in dependency order.
func All() []any {
	return []any{
		&Office{},
		&Service{},
		&User{},
		&Request{},
		&Assignment{},
		&Booking{},
		&Notification{},
		&AccomplishmentReport{},
	}
}
