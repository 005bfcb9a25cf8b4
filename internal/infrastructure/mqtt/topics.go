package mqtt

import "fmt"

// Topic prefixes for w1logger MQTT topics.
const (
	// TopicPrefix is the root of every w1logger topic.
	TopicPrefix = "w1logger"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = TopicPrefix + "/system"
)

// Topics provides builders for w1logger MQTT topics.
//
//	topic := mqtt.Topics{}.Record("onewire")
//	// Returns: "w1logger/record/onewire"
type Topics struct{}

// Record returns the topic each collected record is published to.
//
// Example: w1logger/record/onewire
func (Topics) Record(measurement string) string {
	return fmt.Sprintf("%s/record/%s", TopicPrefix, measurement)
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: w1logger/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
