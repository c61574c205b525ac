package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"melodiary/pkg/logger"
)

// KafkaConfig 配置
type KafkaConfig struct {
	Brokers []string
	GroupID string
	Topics  []string
}

// Producer 生产者
type Producer struct {
	asyncProducer sarama.AsyncProducer
}

// Consumer 消费者
type Consumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	ready   chan bool
	Handler ConsumerHandler
}

// ConsumerHandler 消息处理回调
type ConsumerHandler interface {
	HandleMessage(msg *sarama.ConsumerMessage) error
}

// InitProducer 初始化生产者
//
// 异步发送，错误通道由后台goroutine消化并记日志，避免通道积压阻塞发送。
func InitProducer(brokers []string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = false
	config.Producer.Return.Errors = true
	config.Producer.Partitioner = sarama.NewHashPartitioner
	producer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	p := &Producer{asyncProducer: producer}
	go p.drainErrors()
	return p, nil
}

// drainErrors 记录异步发送失败，通道在Close后关闭
func (p *Producer) drainErrors() {
	for err := range p.asyncProducer.Errors() {
		logger.GetLogger().Error(context.Background(), "Kafka produce failed",
			logger.F("topic", err.Msg.Topic),
			logger.F("error", err.Err.Error()))
	}
}

// SendMessage 发送消息
func (p *Producer) SendMessage(topic string, key, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	}
	p.asyncProducer.Input() <- msg
	return nil
}

// PublishJSON 以JSON编码发送事件
func (p *Producer) PublishJSON(topic string, key string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %v", err)
	}
	return p.SendMessage(topic, []byte(key), payload)
}

// Close 关闭生产者
func (p *Producer) Close() error {
	return p.asyncProducer.Close()
}

// InitConsumer 初始化消费者
func InitConsumer(cfg KafkaConfig, handler ConsumerHandler) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, config)
	if err != nil {
		return nil, err
	}
	c := &Consumer{
		group:   group,
		topics:  cfg.Topics,
		ready:   make(chan bool),
		Handler: handler,
	}
	return c, nil
}

// StartConsuming 启动消费，阻塞到首次rebalance完成
func (c *Consumer) StartConsuming(ctx context.Context) error {
	go func() {
		for {
			if err := c.group.Consume(ctx, c.topics, c); err != nil {
				logger.GetLogger().Error(ctx, "Kafka consume failed",
					logger.F("topics", fmt.Sprintf("%v", c.topics)),
					logger.F("error", err.Error()))
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	<-c.ready
	return nil
}

// Close 关闭消费者组
func (c *Consumer) Close() error {
	return c.group.Close()
}

// Setup sarama.ConsumerGroupHandler
func (c *Consumer) Setup(_ sarama.ConsumerGroupSession) error {
	close(c.ready)
	return nil
}

// Cleanup sarama.ConsumerGroupHandler
func (c *Consumer) Cleanup(_ sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim 消费消息
func (c *Consumer) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := c.Handler.HandleMessage(msg); err == nil {
			sess.MarkMessage(msg, "")
		}
	}
	return nil
}
