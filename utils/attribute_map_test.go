package utils

import (
	"testing"

	"go.viam.com/test"
)

type sampleConfig struct {
	Interval int     `json:"interval"`
	Scale    float64 `json:"scale"`
	Enabled  bool    `json:"enabled"`
}

func TestTransformAttributeMap(t *testing.T) {
	am := AttributeMap{
		"interval": 3.0,
		"scale":    2,
		"enabled":  "true",
	}
	test.That(t, am.Has("scale"), test.ShouldBeTrue)
	test.That(t, am.Has("junk"), test.ShouldBeFalse)

	conf, err := TransformAttributeMap[*sampleConfig](am)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf, test.ShouldResemble, &sampleConfig{Interval: 3, Scale: 2, Enabled: true})

	byValue, err := TransformAttributeMap[sampleConfig](am)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, byValue.Interval, test.ShouldEqual, 3)

	_, err = TransformAttributeMap[*sampleConfig](AttributeMap{"intervall": 3, "scal": 1})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "[intervall scal]")

	_, err = TransformAttributeMap[*sampleConfig](AttributeMap{"scale": "not a number"})
	test.That(t, err, test.ShouldNotBeNil)
}
