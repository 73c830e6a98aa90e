// Package factory is a small generic registry that builds pluggable modules,
// such as metrics sinks and plan notifiers, from configuration. A module is
// described by a type string and a map of raw settings; its factory decodes
// the settings into a typed struct and returns the implementation.
//
//	reg := factory.NewRegistry[Notifier]()
//	reg.Register("webhook", func(conf map[string]any) (Notifier, error) {
//	    var c struct{ URL string `json:"url"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newWebhook(c.URL), nil
//	})
//	n, err := reg.Create(factory.ModuleConfig{Type: "webhook", Conf: map[string]any{"url": "http://..."}})
package factory
