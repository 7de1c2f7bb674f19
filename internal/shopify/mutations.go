package shopify

// MetafieldsSetMutation sets metafields on a resource (e.g. ProductVariant). Used to write the label.
const MetafieldsSetMutation = `
mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields {
      key
      namespace
      value
    }
    userErrors {
      field
      message
      code
    }
  }
}
`

// MetafieldsSetInput is used with metafieldsSet mutation.
type MetafieldsSetInput struct {
	OwnerID   string `json:"ownerId"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

// WebhookSubscriptionCreateMutation registers a change-notification subscription
const WebhookSubscriptionCreateMutation = `
mutation webhookSubscriptionCreate($topic: WebhookSubscriptionTopic!, $callbackUrl: URL!) {
  webhookSubscriptionCreate(topic: $topic, webhookSubscription: { callbackUrl: $callbackUrl, format: JSON }) {
    webhookSubscription {
      id
      topic
      endpoint {
        __typename
      }
    }
    userErrors {
      field
      message
    }
  }
}
`

// WebhookSubscriptionDeleteMutation removes a duplicate subscription
const WebhookSubscriptionDeleteMutation = `
mutation webhookSubscriptionDelete($id: ID!) {
  webhookSubscriptionDelete(id: $id) {
    deletedWebhookSubscriptionId
    userErrors {
      field
      message
    }
  }
}
`
