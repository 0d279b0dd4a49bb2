// Package schema describes and checks the parameters a tool accepts.
//
// A Schema maps parameter names to types. Types are built in Go or parsed from
// their names, which is how declarative agent files declare them:
//
//	s, err := schema.ParseTypeMap(map[string]string{
//	    "appointment_time": "string",
//	    "slots":            "[string]",
//	    "note":             "string?",
//	})
//
// A trailing "?" marks an optional parameter. Validate reports every failing
// field at once as an *AggregateError.
package schema
