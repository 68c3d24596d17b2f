package broker

import (
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
)

// kafkaContentTypeHeader carries the declared content type on Kafka, which has no
// protocol-level property for it.
const kafkaContentTypeHeader = "content-type"

func kafkaHeaders(headers []kafka.Header) (map[string]string, string) {
	if len(headers) == 0 {
		return nil, ""
	}
	out := make(map[string]string, len(headers))
	var contentType string
	for _, h := range headers {
		if strings.EqualFold(h.Key, kafkaContentTypeHeader) {
			contentType = string(h.Value)
			continue
		}
		out[h.Key] = string(h.Value)
	}
	return out, contentType
}

// amqpHeaders stringifies every header value, whatever its AMQP field type.
func amqpHeaders(table amqp.Table) map[string]string {
	if len(table) == 0 {
		return nil
	}
	out := make(map[string]string, len(table))
	for k, v := range table {
		if v == nil {
			continue
		}
		out[k] = headerString(v)
	}
	return out
}

func headerString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case amqp.Decimal:
		return decimalString(val)
	default:
		return fmt.Sprint(val)
	}
}

func decimalString(d amqp.Decimal) string {
	if d.Scale == 0 {
		return fmt.Sprint(d.Value)
	}
	sign := ""
	value := int64(d.Value)
	if value < 0 {
		sign = "-"
		value = -value
	}
	digits := fmt.Sprintf("%0*d", int(d.Scale)+1, value)
	cut := len(digits) - int(d.Scale)
	return sign + digits[:cut] + "." + digits[cut:]
}
