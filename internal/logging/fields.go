package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCartridge is the standardized structured logging key for cartridge UUIDs.
	FieldCartridge = "cartridge_uuid"
	// FieldGame is the standardized structured logging key for game display names.
	FieldGame = "game"
	// FieldGameID is the standardized structured logging key for game id slugs.
	FieldGameID = "game_id"
	// FieldState is the standardized structured logging key for session states.
	FieldState = "state"
	// FieldMount is the standardized structured logging key for mount paths.
	FieldMount = "mount"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType categorizes log lines for downstream filtering.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized key for the suggested next step after a failure.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)
