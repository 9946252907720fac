package resource

type RealtimeEventResource struct {
	Topic string      `json:"topic"`
	Data  interface{} `json:"data"`
}

func NewRealtimeEvent(topic string, data interface{}) *RealtimeEventResource {
	return &RealtimeEventResource{
		Topic: topic,
		Data:  data,
	}
}
