package catalog

// Default returns a catalog seeded with the core domains the binary and the
// tests exercise. A fuller generated catalog can be merged on top with Load.
func Default() *Catalog {
	c := New()
	seedStructs(c)
	seedCommands(c)
	seedEvents(c)
	return c
}

func seedStructs(c *Catalog) {
	c.AddStruct(&Struct{Name: "Page.Frame", Fields: []Field{
		{Name: "id", Type: Primitive()},
		{Name: "parentId", Type: Primitive(), Optional: true},
		{Name: "loaderId", Type: Primitive()},
		{Name: "name", Type: Primitive(), Optional: true},
		{Name: "url", Type: Primitive()},
		{Name: "securityOrigin", Type: Primitive()},
		{Name: "mimeType", Type: Primitive()},
		{Name: "unreachableUrl", Type: Primitive(), Optional: true},
	}})

	c.AddStruct(&Struct{Name: "Page.Viewport", Fields: []Field{
		{Name: "x", Type: Primitive()},
		{Name: "y", Type: Primitive()},
		{Name: "width", Type: Primitive()},
		{Name: "height", Type: Primitive()},
		{Name: "scale", Type: Primitive()},
	}})

	c.AddStruct(&Struct{Name: "Network.Request", Fields: []Field{
		{Name: "url", Type: Primitive()},
		{Name: "method", Type: Primitive()},
		{Name: "headers", Type: Primitive()},
		{Name: "postData", Type: Primitive(), Optional: true},
		{Name: "initialPriority", Type: Primitive(), Optional: true},
	}})

	c.AddStruct(&Struct{Name: "Network.Response", Fields: []Field{
		{Name: "url", Type: Primitive()},
		{Name: "status", Type: Primitive()},
		{Name: "statusText", Type: Primitive()},
		{Name: "headers", Type: Primitive()},
		{Name: "mimeType", Type: Primitive()},
	}})

	c.AddStruct(&Struct{Name: "Network.Initiator", Fields: []Field{
		{Name: "type", Type: Primitive()},
		{Name: "url", Type: Primitive(), Optional: true},
		{Name: "lineNumber", Type: Primitive(), Optional: true},
	}})

	// Node.children references Node; decoding recursion is driven by the
	// depth of the wire payload.
	c.AddStruct(&Struct{Name: "DOM.Node", Fields: []Field{
		{Name: "nodeId", Type: Primitive()},
		{Name: "parentId", Type: Primitive(), Optional: true},
		{Name: "backendNodeId", Type: Primitive()},
		{Name: "nodeType", Type: Primitive()},
		{Name: "nodeName", Type: Primitive()},
		{Name: "localName", Type: Primitive()},
		{Name: "nodeValue", Type: Primitive()},
		{Name: "childNodeCount", Type: Primitive(), Optional: true},
		{Name: "children", Type: ArrayOf("DOM.Node"), Optional: true},
		{Name: "attributes", Type: Primitive(), Optional: true},
	}})

	c.AddStruct(&Struct{Name: "Runtime.RemoteObject", Fields: []Field{
		{Name: "type", Type: Primitive()},
		{Name: "subtype", Type: Primitive(), Optional: true},
		{Name: "className", Type: Primitive(), Optional: true},
		{Name: "value", Type: Primitive(), Optional: true},
		{Name: "unserializableValue", Type: Primitive(), Optional: true},
		{Name: "description", Type: Primitive(), Optional: true},
		{Name: "objectId", Type: Primitive(), Optional: true},
	}})

	c.AddStruct(&Struct{Name: "Runtime.CallFrame", Fields: []Field{
		{Name: "functionName", Type: Primitive()},
		{Name: "scriptId", Type: Primitive()},
		{Name: "url", Type: Primitive()},
		{Name: "lineNumber", Type: Primitive()},
		{Name: "columnNumber", Type: Primitive()},
	}})

	c.AddStruct(&Struct{Name: "Runtime.StackTrace", Fields: []Field{
		{Name: "description", Type: Primitive(), Optional: true},
		{Name: "callFrames", Type: ArrayOf("Runtime.CallFrame")},
		{Name: "parent", Type: StructOf("Runtime.StackTrace"), Optional: true},
	}})

	c.AddStruct(&Struct{Name: "Runtime.ExceptionDetails", Fields: []Field{
		{Name: "exceptionId", Type: Primitive()},
		{Name: "text", Type: Primitive()},
		{Name: "lineNumber", Type: Primitive()},
		{Name: "columnNumber", Type: Primitive()},
		{Name: "scriptId", Type: Primitive(), Optional: true},
		{Name: "url", Type: Primitive(), Optional: true},
		{Name: "stackTrace", Type: StructOf("Runtime.StackTrace"), Optional: true},
		{Name: "exception", Type: StructOf("Runtime.RemoteObject"), Optional: true},
	}})

	c.AddStruct(&Struct{Name: "Schema.Domain", Fields: []Field{
		{Name: "name", Type: Primitive()},
		{Name: "version", Type: Primitive()},
	}})
}

func seedCommands(c *Catalog) {
	c.AddCommand(&Command{Domain: "Inspector", Name: "enable"})
	c.AddCommand(&Command{Domain: "Inspector", Name: "disable"})

	c.AddCommand(&Command{Domain: "Page", Name: "navigate",
		Params: []Field{
			{Name: "url", Type: Primitive()},
			{Name: "referrer", Type: Primitive(), Optional: true},
			{Name: "transitionType", Type: Primitive(), Optional: true},
		},
		Returns: []Field{
			{Name: "frameId", Type: Primitive()},
		},
	})

	c.AddCommand(&Command{Domain: "Page", Name: "stopLoading"})

	c.AddCommand(&Command{Domain: "Page", Name: "captureScreenshot",
		Params: []Field{
			{Name: "format", Type: Primitive(), Optional: true},
			{Name: "quality", Type: Primitive(), Optional: true},
			{Name: "clip", Type: StructOf("Page.Viewport"), Optional: true},
			{Name: "fromSurface", Type: Primitive(), Optional: true},
		},
		Returns: []Field{
			{Name: "data", Type: Primitive()},
		},
	})

	c.AddCommand(&Command{Domain: "Network", Name: "enable",
		Params: []Field{
			{Name: "maxTotalBufferSize", Type: Primitive(), Optional: true},
			{Name: "maxResourceBufferSize", Type: Primitive(), Optional: true},
		},
	})

	c.AddCommand(&Command{Domain: "Network", Name: "disable"})

	c.AddCommand(&Command{Domain: "DOM", Name: "getDocument",
		Params: []Field{
			{Name: "depth", Type: Primitive(), Optional: true},
			{Name: "pierce", Type: Primitive(), Optional: true},
		},
		Returns: []Field{
			{Name: "root", Type: StructOf("DOM.Node")},
		},
	})

	c.AddCommand(&Command{Domain: "Runtime", Name: "evaluate",
		Params: []Field{
			{Name: "expression", Type: Primitive()},
			{Name: "objectGroup", Type: Primitive(), Optional: true},
			{Name: "includeCommandLineAPI", Type: Primitive(), Optional: true},
			{Name: "silent", Type: Primitive(), Optional: true},
			{Name: "contextId", Type: Primitive(), Optional: true},
			{Name: "returnByValue", Type: Primitive(), Optional: true},
			{Name: "awaitPromise", Type: Primitive(), Optional: true},
		},
		Returns: []Field{
			{Name: "result", Type: StructOf("Runtime.RemoteObject")},
			{Name: "exceptionDetails", Type: StructOf("Runtime.ExceptionDetails"), Optional: true},
		},
	})

	c.AddCommand(&Command{Domain: "Schema", Name: "getDomains",
		Returns: []Field{
			{Name: "domains", Type: ArrayOf("Schema.Domain")},
		},
	})

	c.AddCommand(&Command{Domain: "Target", Name: "attachToTarget",
		Params: []Field{
			{Name: "targetId", Type: Primitive()},
		},
		Returns: []Field{
			{Name: "sessionId", Type: Primitive()},
		},
	})

	c.AddCommand(&Command{Domain: "Target", Name: "detachFromTarget",
		Params: []Field{
			{Name: "sessionId", Type: Primitive(), Optional: true},
			{Name: "targetId", Type: Primitive(), Optional: true},
		},
	})
}

func seedEvents(c *Catalog) {
	c.AddEvent(&Event{Name: "Inspector.detached", Params: []Field{
		{Name: "reason", Type: Primitive()},
	}})

	c.AddEvent(&Event{Name: "Inspector.targetCrashed"})

	c.AddEvent(&Event{
		Name: "Page.frameAttached",
		Params: []Field{
			{Name: "frameId", Type: Primitive()},
			{Name: "parentFrameId", Type: Primitive()},
			{Name: "stack", Type: StructOf("Runtime.StackTrace"), Optional: true},
		},
		Identity: &Identity{Event: "Page.frameAttached", Fields: []string{"frameId", "parentFrameId"}},
	})

	// frameNavigated carries the whole frame structure rather than a flat
	// frame id, so occurrences are not identity-keyed here.
	c.AddEvent(&Event{
		Name: "Page.frameNavigated",
		Params: []Field{
			{Name: "frame", Type: StructOf("Page.Frame")},
		},
	})

	c.AddEvent(&Event{
		Name: "Page.frameDetached",
		Params: []Field{
			{Name: "frameId", Type: Primitive()},
		},
		Identity: &Identity{Event: "Page.frameDetached", Fields: []string{"frameId"}},
	})

	c.AddEvent(&Event{Name: "DOM.documentUpdated"})

	c.AddEvent(&Event{
		Name: "DOM.attributeModified",
		Params: []Field{
			{Name: "nodeId", Type: Primitive()},
			{Name: "name", Type: Primitive()},
			{Name: "value", Type: Primitive()},
		},
		Identity: &Identity{Event: "DOM.attributeModified", Fields: []string{"nodeId"}},
	})

	c.AddEvent(&Event{
		Name: "Network.requestWillBeSent",
		Params: []Field{
			{Name: "requestId", Type: Primitive()},
			{Name: "loaderId", Type: Primitive()},
			{Name: "documentURL", Type: Primitive()},
			{Name: "request", Type: StructOf("Network.Request")},
			{Name: "timestamp", Type: Primitive()},
			{Name: "wallTime", Type: Primitive()},
			{Name: "initiator", Type: StructOf("Network.Initiator")},
			{Name: "redirectResponse", Type: StructOf("Network.Response"), Optional: true},
			{Name: "type", Type: Primitive(), Optional: true},
			{Name: "frameId", Type: Primitive(), Optional: true},
		},
		Identity: &Identity{Event: "Network.requestWillBeSent", Fields: []string{"loaderId", "frameId", "requestId"}},
	})
}
