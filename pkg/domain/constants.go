package domain

// Well-known Record fields.
const (
	FieldPassengerName      = "passenger_name"
	FieldConfirmationNumber = "confirmation_number"
	FieldSeatNumber         = "seat_number"
	FieldFlightNumber       = "flight_number"
	FieldAccountNumber      = "account_number"
)

// KnownFields lists the Record fields exposed in snapshots, in display order.
var KnownFields = []string{
	FieldPassengerName,
	FieldConfirmationNumber,
	FieldSeatNumber,
	FieldFlightNumber,
	FieldAccountNumber,
}

const (
	// RefusalMessage is the single user-visible answer for rejected or failed turns.
	RefusalMessage = "Sorry, I can only answer questions related to airline travel."

	// SeatMapSentinel asks the UI to render the interactive seat picker.
	// It travels as ordinary message content and must never be rewritten.
	SeatMapSentinel = "DISPLAY_SEAT_MAP"
)
