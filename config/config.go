// Package config loads bridge configurations from YAML or JSON files.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/qaisjp/discord-irc-mediator/bridge"
)

// ErrEmpty is returned when a file holds no configuration.
var ErrEmpty = errors.New("no bridge configuration found")

// Load reads the file at path. See Parse.
func Load(path string) ([]*bridge.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read config")
	}
	return Parse(data)
}

// Parse decodes a single bridge configuration or a list of them, fills in
// defaults and validates every entry. Unknown keys are rejected.
// JSON is accepted as it is a subset of YAML.
func Parse(data []byte) ([]*bridge.Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "could not parse config")
	}
	if len(doc.Content) == 0 {
		return nil, ErrEmpty
	}

	var configs []*bridge.Config
	switch doc.Content[0].Kind {
	case yaml.SequenceNode:
		if err := decodeStrict(data, &configs); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var c bridge.Config
		if err := decodeStrict(data, &c); err != nil {
			return nil, err
		}
		configs = append(configs, &c)
	default:
		return nil, errors.New("config must be an object or a list of objects")
	}

	if len(configs) == 0 {
		return nil, ErrEmpty
	}

	var result error
	for i, c := range configs {
		if c == nil {
			result = multierror.Append(result, fmt.Errorf("config[%d]: empty entry", i))
			continue
		}

		nickname := c.Nickname
		c.SetDefaults()
		if nickname != c.Nickname {
			log.WithFields(log.Fields{
				"from": nickname,
				"to":   c.Nickname,
			}).Warnln("Nickname is not a valid IRC nick, it has been changed")
		}

		if err := c.Validate(); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "config[%d]", i))
		}
	}
	if result != nil {
		return nil, result
	}

	return configs, nil
}

func decodeStrict(data []byte, v interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}
