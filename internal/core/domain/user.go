package domain

type User struct {
	ID         string
	Name       string
	Email      string
	Orders     int
	TotalSpent string
}
