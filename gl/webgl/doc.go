// Package webgl implements gl.Context over a browser WebGL2 context.
//
// It is only built for js/wasm. The canvas element stays owned by the
// caller:
//
//	canvas := js.Global().Get("document").Call("getElementById", "view")
//	ctx, err := webgl.NewContext(canvas)
//	if err != nil {
//	    return err
//	}
//	r, err := glcore.New(ctx)
//	...
//	err = r.Run(context.Background(), webgl.NewHost(), loop.Frame)
package webgl
