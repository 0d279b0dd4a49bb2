package concierge

// Version of the module. Release builds override it with
// -ldflags "-X github.com/aretw0/concierge.Version=v1.2.3".
var Version = "dev"
