package core

// Verticle is a unit of deployment. The todo service, its event consumers and
// the NATS bridge are each a Verticle.
type Verticle interface {
	// Start is called when the verticle is deployed. An error aborts the deployment.
	Start(ctx FluxorContext) error

	// Stop is called when the verticle is undeployed
	Stop(ctx FluxorContext) error
}
