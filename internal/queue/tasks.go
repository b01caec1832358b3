package queue

const (
	TypeGalleryImageCleanup = "gallery:image_cleanup"
	TypeWebhookDeliver      = "webhook:deliver"
)

// GalleryImageCleanupPayload lists storage objects left behind by a deleted
// gallery item.
type GalleryImageCleanupPayload struct {
	ItemID string   `json:"item_id"`
	Bucket string   `json:"bucket"`
	Paths  []string `json:"paths"`
}

type WebhookDeliverPayload struct {
	DeliveryID string `json:"delivery_id"`
	Event      string `json:"event"`
	Payload    string `json:"payload"` // JSON string
}
