package bus

// ReadHooks invokes the query's hook target around the remainder of the
// chain: Reading before, DidRead after a successful result. Failed
// results and propagated errors skip DidRead.
func ReadHooks[I Input]() Middleware[Query[I]] {
	return func(q Query[I], next Handler[Query[I]]) (Result, error) {
		hooks := q.Hooks()
		hooks.Reading(q.Request(), q.Input())

		result, err := next(q)
		if err != nil || result.DidFail() {
			return result, err
		}

		hooks.DidRead(q.Request(), result.Payload())
		return result, nil
	}
}

// WriteHooks invokes the command's hook target around the remainder of
// the chain: Writing before (with the resolved model, or nil for
// creates), DidWrite after a successful result.
func WriteHooks[I Input]() Middleware[Command[I]] {
	return func(c Command[I], next Handler[Command[I]]) (Result, error) {
		hooks := c.Hooks()
		model, _ := c.Model()
		hooks.Writing(c.Request(), model)

		result, err := next(c)
		if err != nil || result.DidFail() {
			return result, err
		}

		hooks.DidWrite(c.Request(), result.Payload())
		return result, nil
	}
}
