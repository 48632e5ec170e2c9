package kafka

import (
	"github.com/IBM/sarama"
)

// InitProducer builds a synchronous producer for the message event stream.
// Hash partitioning keeps events for one conversation on one partition.
func InitProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Version = sarama.V2_0_0_0
	config.ClientID = "chat-api"

	return sarama.NewSyncProducer(brokers, config)
}
