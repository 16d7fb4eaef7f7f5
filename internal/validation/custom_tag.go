package validation

func init() {
	// Room and clip identifiers are opaque, caller-supplied strings.
	// Authorization is exact-match only, so validation is limited to
	// presence and a length cap; no charset is imposed.
	MustRegisterGinAlias("roomid", "min=1,max=128")
	MustRegisterGinAlias("clipid", "min=1,max=128")
}
