package models

// User roles.
const (
	RoleMentor = "mentor"
	RoleMentee = "mentee"
)

// User holds the structure for the user collection in mongo
type User struct {
	ID      string      `json:"_id" bson:"_id"`
	Details UserDetails `json:"user" bson:"user"`
	Version int32       `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user structure as defined
// in the user collection in mongo. SessionsBooked and SessionsCompleted are
// best-effort counters, periodically reconciled by the scheduler.
type UserDetails struct {
	Name              string      `json:"name" bson:"name"`
	Email             string      `json:"email" bson:"email"`
	Password          string      `json:"password" bson:"password"`
	Avatar            string      `json:"avatar" bson:"avatar"`
	Role              string      `json:"role" bson:"role"`
	Bio               string      `json:"bio" bson:"bio"`
	Expertise         []string    `json:"expertise" bson:"expertise"`
	HourlyRate        float64     `json:"hourlyRate" bson:"hourlyRate"`
	SessionsBooked    int64       `json:"sessionsBooked" bson:"sessionsBooked"`
	SessionsCompleted int64       `json:"sessionsCompleted" bson:"sessionsCompleted"`
	CreatedAt         interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt         interface{} `json:"updatedAt" bson:"updatedAt"`
}
