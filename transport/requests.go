package transport

// UploadClipParams represents the upload query parameters
type UploadClipParams struct {
	// ClipID: opaque caller-supplied identifier, exact-match only
	ClipID string `form:"clipId" binding:"required,clipid"`
	// RoomID: room the clip belongs to, checked again on download
	RoomID string `form:"roomId" binding:"required,roomid"`
}

// DownloadClipURI represents the download path parameter
type DownloadClipURI struct {
	ClipID string `uri:"clipId" binding:"required,clipid"`
}

// DownloadClipQuery represents the download query parameters
type DownloadClipQuery struct {
	RoomID string `form:"roomId" binding:"required,roomid"`
}
