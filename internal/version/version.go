package version

const (
	AppName     = "botpanel"
	AppFullName = "Farllirs Bots Panel"
	AppVersion  = "1.2.0"
)
