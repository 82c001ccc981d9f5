package postgres

// Error message prefixes for wrapped driver errors.
const (
	errMsgParseConnString = "failed to parse connection string"
	errMsgCreatePool      = "failed to create connection pool"
	errMsgPing            = "failed to ping database"
	errMsgBeginTx         = "failed to begin transaction"
	errMsgCommitTx        = "failed to commit transaction"
	errMsgMigrate         = "failed to apply migrations"
)
