package util

type Envelope map[string]any

func Error(message string) Envelope {
	return Envelope{"message": message}
}

// Failure carries a coarse error category alongside the message.
func Failure(category, message string) Envelope {
	return Envelope{"message": message, "category": category}
}
