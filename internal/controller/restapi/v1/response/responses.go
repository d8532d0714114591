package response

type Error struct {
	Error string `json:"error"`
}

type PresignedURL struct {
	URL        string `json:"url"`
	ObjectName string `json:"objectName"`
}

type Upload struct {
	FileName string `json:"file_name"`
}

type StoredObject struct {
	Key          string `json:"key"`
	SizeBytes    int64  `json:"size_bytes"`
	LastModified string `json:"last_modified"`
}
