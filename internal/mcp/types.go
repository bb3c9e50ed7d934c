package mcp

type emptyArgs struct{}

type versionArgs struct {
	Version string `json:"version,omitempty" jsonschema:"The version to migrate to. If omitted, all pending migrations are applied or rolled back."`
}

type planArgs struct {
	Direction string `json:"direction,omitempty" jsonschema:"Either 'up' or 'down'. Defaults to 'up'."`
	Version   string `json:"version,omitempty" jsonschema:"Stop planning after this version. If omitted, the plan covers everything."`
}

type messageOutput struct {
	Message string `json:"message"`
}
