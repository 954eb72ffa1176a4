// Package ros reads depth frames out of ROS bags.
package ros

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/depthnoise/rimage"
)

// ReadBag reads the contents of a rosbag into a gobag data structure.
func ReadBag(filename string) (*rosbag.RosBag, error) {
	//nolint:gosec
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open input file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	rb := rosbag.NewRosBag()

	if err := rb.Read(f); err != nil {
		return nil, errors.Wrapf(err, "unable to create ros bag, error")
	}

	return rb, nil
}

// topicKey is the key the bag parser files a topic's messages under.
func topicKey(topic string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(topic, "/"), "/", "_"))
}

// ImageMessagesForTopic returns all sensor_msgs/Image messages recorded on a topic, in bag order.
func ImageMessagesForTopic(rb *rosbag.RosBag, topic string) ([]*ImageMessage, error) {
	if err := rb.ParseTopicsToJSON(
		"",
		func(int64) bool { return true },
		func(t string) bool { return t == topic },
		false,
	); err != nil {
		return nil, errors.Wrapf(err, "error while parsing bag to JSON")
	}

	msgs := rb.TopicsAsJSON[topicKey(topic)]
	if msgs == nil {
		return nil, errors.Errorf("no messages for topic %s", topic)
	}
	return DecodeImageMessages(msgs)
}

// DecodeImageMessages decodes newline separated JSON image messages.
func DecodeImageMessages(r io.Reader) ([]*ImageMessage, error) {
	br := bufio.NewReader(r)
	all := []*ImageMessage{}
	for {
		data, err := br.ReadBytes('\n')
		if len(strings.TrimSpace(string(data))) != 0 {
			var message ImageMessage
			if err := json.Unmarshal(data, &message); err != nil {
				return nil, errors.Wrapf(err, "cannot decode image message %d", len(all))
			}
			all = append(all, &message)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
	}
	return all, nil
}

// DepthFramesForTopic returns the depth frames recorded on a topic of the bag at filename.
func DepthFramesForTopic(filename, topic string) ([]*rimage.DepthFrame, error) {
	rb, err := ReadBag(filename)
	if err != nil {
		return nil, err
	}
	msgs, err := ImageMessagesForTopic(rb, topic)
	if err != nil {
		return nil, err
	}
	frames := make([]*rimage.DepthFrame, 0, len(msgs))
	for i, msg := range msgs {
		frame, err := msg.DepthFrame()
		if err != nil {
			return nil, errors.Wrapf(err, "message %d on %s", i, topic)
		}
		frames = append(frames, frame)
	}
	return frames, nil
}
