package log

const (
	// FldPath is the name of the log field for storing path name information
	FldPath = "path"
	// FldTransport is the name of the log field for storing a transport name
	FldTransport = "transport"
	// FldSession is the name of the log field for storing the session ID
	FldSession = "session"
	// FldDJ is the name of the log field for storing the ID of the currently logged-in DJ
	FldDJ = "dj"
	// FldEvent is the name of the log field for storing an event slug
	FldEvent = "event"
	// FldRequest is the name of the log field for storing a song request ID
	FldRequest = "request"
	// FldVersion is the version number of the application
	FldVersion = "ver"
	// FldIdentity is the resolved client identity used in the log entry
	FldIdentity = "identity"
	// FldID is the ID of an entity used in the log entry
	FldID = "id"
	// FldStatus is a request status used in the log entry
	FldStatus = "status"
	// FldFile is the name of the log field for storing a file name
	FldFile = "file"
)
