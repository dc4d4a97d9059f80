package runstatus

// Phases a notifier run moves through, in order.
const (
	Scanning             = "Scanning"
	Notifying            = "Sending status message"
	UploadingScreenshots = "Uploading screenshots"
	UploadingVideos      = "Uploading videos"
	Done                 = "Done"
	NothingFound         = "Nothing found"
)

// ResultOutput is the action output set when the scan finds nothing.
const (
	ResultOutput        = "result"
	NothingFoundMessage = "No videos or screenshots found!"
)
